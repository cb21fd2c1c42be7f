package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

// ReadCSV parses a delimited file into a dataframe and validates it against
// the schema. All columns are loaded as strings; numeric parsing is deferred
// to the treatment plan so that malformed cells surface as imputation, not as
// load failures.
func ReadCSV(r io.Reader, sep rune, schema Schema) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(sep),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df, errors.NewDataUnavailableError("reader", "malformed CSV", df.Err)
	}
	if df.Nrow() == 0 {
		return df, errors.NewDataUnavailableError("reader", "no data rows", errors.ErrEmptyData)
	}
	if err := schema.Validate(df); err != nil {
		return df, err
	}
	return df, nil
}

// Fetch retrieves a CSV resource over HTTP and parses it with ReadCSV.
// A nil client falls back to http.DefaultClient. Unreachable or non-200
// responses yield a DataUnavailableError.
func Fetch(ctx context.Context, client *http.Client, url string, sep rune, schema Schema) (dataframe.DataFrame, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dataframe.DataFrame{}, errors.NewDataUnavailableError(url, "invalid request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return dataframe.DataFrame{}, errors.NewDataUnavailableError(url, "fetch failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return dataframe.DataFrame{}, errors.NewDataUnavailableError(url,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	return ReadCSV(resp.Body, sep, schema)
}

// SubsetRows returns the rows of df selected by idx, in idx order.
func SubsetRows(df dataframe.DataFrame, idx []int) (dataframe.DataFrame, error) {
	sub := df.Subset(idx)
	if sub.Err != nil {
		return sub, errors.Wrap(sub.Err, "subset rows")
	}
	return sub, nil
}
