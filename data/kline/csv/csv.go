package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
)

var errInvalidRow = errors.New("invalid csv row")

// Paths points at the csv files for a single symbol. Only Candles is required
type Paths struct {
	Candles string
	Books   string
	Trades  string
}

// LoadData reads every configured file for a symbol into a series
func LoadData(symbol string, p Paths) (*data.Series, error) {
	if p.Candles == "" {
		return nil, fmt.Errorf("%w: no candle file for %v", common.ErrNilArguments, symbol)
	}
	resp := &data.Series{Symbol: symbol}
	err := readFile(p.Candles, 6, func(row []string) error {
		c, err := parseCandle(row)
		if err != nil {
			return err
		}
		resp.Candles = append(resp.Candles, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if p.Books != "" {
		err = readFile(p.Books, 5, func(row []string) error {
			b, err := parseBook(row)
			if err != nil {
				return err
			}
			resp.Books = append(resp.Books, b)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if p.Trades != "" {
		err = readFile(p.Trades, 3, func(row []string) error {
			tr, err := parseTrade(row)
			if err != nil {
				return err
			}
			resp.Trades = append(resp.Trades, tr)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	log.Debugf(log.Data, "loaded %d candles, %d books, %d trades for %v from csv", len(resp.Candles), len(resp.Books), len(resp.Trades), symbol)
	return resp, nil
}

// readFile calls fn for every data row. A first row whose leading cell is
// not a timestamp is treated as a header
func readFile(path string, minColumns int, fn func([]string) error) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Errorln(log.Data, closeErr)
		}
	}()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	for line := 1; ; line++ {
		row, errCSV := r.Read()
		if errCSV != nil {
			if errCSV == io.EOF {
				return nil
			}
			return errCSV
		}
		if line == 1 && isHeader(row) {
			continue
		}
		if len(row) < minColumns {
			return fmt.Errorf("%w %v line %d: expected %d columns, received %d", errInvalidRow, path, line, minColumns, len(row))
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("%w %v line %d: %w", errInvalidRow, path, line, err)
		}
	}
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	_, err := data.ParseTime(row[0])
	return err != nil
}

func parseDecimals(cells []string) ([]decimal.Decimal, error) {
	resp := make([]decimal.Decimal, len(cells))
	for i := range cells {
		d, err := decimal.NewFromString(strings.TrimSpace(cells[i]))
		if err != nil {
			return nil, err
		}
		resp[i] = d
	}
	return resp, nil
}

// parseCandle expects time,open,high,low,close,volume
func parseCandle(row []string) (data.Candle, error) {
	t, err := data.ParseTime(row[0])
	if err != nil {
		return data.Candle{}, err
	}
	d, err := parseDecimals(row[1:6])
	if err != nil {
		return data.Candle{}, err
	}
	return data.Candle{Time: t, Open: d[0], High: d[1], Low: d[2], Close: d[3], Volume: d[4]}, nil
}

// parseBook expects time,bid-price,bid-size,ask-price,ask-size
func parseBook(row []string) (data.BookTop, error) {
	t, err := data.ParseTime(row[0])
	if err != nil {
		return data.BookTop{}, err
	}
	d, err := parseDecimals(row[1:5])
	if err != nil {
		return data.BookTop{}, err
	}
	return data.BookTop{Time: t, BidPrice: d[0], BidSize: d[1], AskPrice: d[2], AskSize: d[3]}, nil
}

// parseTrade expects time,price,size and an optional side
func parseTrade(row []string) (data.Trade, error) {
	t, err := data.ParseTime(row[0])
	if err != nil {
		return data.Trade{}, err
	}
	d, err := parseDecimals(row[1:3])
	if err != nil {
		return data.Trade{}, err
	}
	resp := data.Trade{Time: t, Price: d[0], Size: d[1]}
	if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
		resp.Side, err = common.ParseSide(row[3])
		if err != nil {
			return data.Trade{}, err
		}
	}
	return resp, nil
}
