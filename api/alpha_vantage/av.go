package alpha_vantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	c "pairscan/api"
	e "pairscan/extensions"
	m "pairscan/models"
)

// public
const (
	HostDefault = "www.alphavantage.co"
)

// private
const (
	// default query parameters; full output so a fresh symbol gets its whole history
	defaultOutputSize = "full"
	defaultDataType   = "JSON"
	defaultTimeout    = time.Second * 30

	// api request elements
	query    = "query"
	symbol   = "symbol"
	function = "function"

	dailyAdjustedFunction = "TIME_SERIES_DAILY_ADJUSTED"
	dailyAdjustedKey      = "Time Series (Daily)"
)

var timeSeriesDateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// barResultKeys maps DailyBar fields to the suffix the source uses in its
// numbered json keys ("1. open", "5. adjusted close", ...).
var barResultKeys = map[string]string{
	"Open":           ". open",
	"High":           ". high",
	"Low":            ". low",
	"Close":          ". close",
	"AdjustedClose":  ". adjusted close",
	"Volume":         ". volume",
	"DividendAmount": ". dividend amount",
}

type AlphaVantageClient struct {
	*c.Client
}

func GetClient(apiKey string) AlphaVantageClient {
	return AlphaVantageClient{
		c.ClientFactory(HostDefault, apiKey, defaultTimeout),
	}
}

// GetDailyAdjustedHistory fetches a symbol's full adjusted daily history.
// https://www.alphavantage.co/documentation/#dailyadj
func (avc *AlphaVantageClient) GetDailyAdjustedHistory(ctx context.Context, ticker string) (*m.DailySeriesResult, error) {
	endpoint := avc.buildRequestPath(map[string]string{
		function: dailyAdjustedFunction,
		symbol:   ticker,
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	metadata, timeZone, err := parseMetadata(raw)
	if err != nil {
		return nil, err
	}

	bars, err := parseDailyBars(raw, dailyAdjustedKey, timeZone)
	if err != nil {
		return nil, err
	}

	return &m.DailySeriesResult{
		Metadata: metadata,
		Bars:     bars,
	}, nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	endpoint := &url.URL{}
	endpoint.Path = query

	// base parameters
	query := endpoint.Query()
	query.Set("apikey", avc.Client.ApiKey)
	query.Set("datatype", defaultDataType)
	query.Set("outputsize", defaultOutputSize)

	// additional parameters
	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

func parseRawJson(reader io.Reader) (raw map[string]json.RawMessage, err error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return
}

func parseMetadata(raw map[string]json.RawMessage) (*m.UniverseMetadata, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw["Meta Data"], &metadataElements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	metadataKeys := slices.Collect(maps.Keys(metadataElements))

	// the source numbers its keys, so everything is matched by suffix
	sf := func(s string) bool { return strings.HasSuffix(s, ". Symbol") }
	symbolKey, err := e.FilterSingle(metadataKeys, sf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	tzf := func(s string) bool { return strings.HasSuffix(s, ". Time Zone") }
	timeZoneKey, err := e.FilterSingle(metadataKeys, tzf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(metadataElements[timeZoneKey])
	if err != nil {
		return nil, nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", metadataElements[timeZoneKey], err)
	}

	lrf := func(s string) bool { return strings.HasSuffix(s, ". Last Refreshed") }
	lastRefreshedKey, err := e.FilterSingle(metadataKeys, lrf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(metadataElements[lastRefreshedKey], timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date")
	}

	res := m.UniverseMetadata{
		Symbol:        metadataElements[symbolKey],
		LastRefreshed: lastRefreshed,
	}

	return &res, timeZone, nil
}

func parseDailyBars(raw map[string]json.RawMessage, key string, location *time.Location) ([]*m.DailyBar, error) {
	var seriesElements map[string]map[string]string
	if err := json.Unmarshal(raw[key], &seriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series: %w", err)
	}

	var firstValue map[string]string
	for _, v := range seriesElements {
		firstValue = v
		break
	}

	lookup, err := getLookupKey(barResultKeys, firstValue)
	if err != nil {
		return nil, err
	}

	bars := make([]*m.DailyBar, 0, len(seriesElements))
	for dateKey, values := range seriesElements {
		timestamp, err := parseDate(dateKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting timestamp from string to time.Time: %w", err)
		}

		bar := &m.DailyBar{Timestamp: timestamp}
		for jsonKey, field := range lookup {
			v := parseFloat(values[jsonKey])
			switch field {
			case "Open":
				bar.Open = v
			case "High":
				bar.High = v
			case "Low":
				bar.Low = v
			case "Close":
				bar.Close = v
			case "AdjustedClose":
				bar.AdjustedClose = v
			case "Volume":
				bar.Volume = v
			case "DividendAmount":
				bar.DividendAmount = v
			}
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func getLookupKey(expectedKeys, values map[string]string) (map[string]string, error) {
	res := make(map[string]string)
	responseValueHeaders := slices.Collect(maps.Keys(values))

	for key, value := range expectedKeys {
		f := func(s string) bool {
			return strings.HasSuffix(strings.ToLower(s), strings.ToLower(value))
		}
		if jsonKey, err := e.FilterSingle(responseValueHeaders, f); err == nil {
			res[jsonKey] = key
		}
	}

	if len(res) == 0 {
		available := slices.Collect(maps.Keys(values))
		return nil, fmt.Errorf("error generating key value map from av response object. Available headers: %v", available)
	}

	return res, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		log.Warn().Str("timeZone", location).Msg("default time zone hit, not recognized")
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation", loc)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

func parseFloat(val string) null.Float {
	if val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return null.FloatFrom(f)
		}
	}
	return null.Float{}
}
