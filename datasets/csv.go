package datasets

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
)

// LoadHeightsCSV reads a table with a header naming "sex" and "height"
// columns. Other columns, such as a leading row index, are ignored.
func LoadHeightsCSV(r io.Reader) (*Heights, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("LoadHeightsCSV", "missing header", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	sexCol, heightCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.Trim(strings.TrimSpace(name), `"`)) {
		case "sex":
			sexCol = i
		case "height":
			heightCol = i
		}
	}
	if sexCol < 0 || heightCol < 0 {
		return nil, errors.NewValidationError("header", "must contain sex and height columns", header)
	}

	h := &Heights{}
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV at line %d", line)
		}
		if sexCol >= len(rec) || heightCol >= len(rec) {
			return nil, errors.Newf("line %d: expected at least %d fields, got %d", line, max(sexCol, heightCol)+1, len(rec))
		}
		sex, err := ParseSex(rec[sexCol])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(rec[heightCol]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid height at line %d", line)
		}
		if err := errors.CheckScalar("LoadHeightsCSV", height); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		h.Sex = append(h.Sex, sex)
		h.Height = append(h.Height, height)
	}
	if h.Len() == 0 {
		return nil, errors.NewModelError("LoadHeightsCSV", "no rows", errors.ErrEmptyData)
	}
	return h, nil
}

// LoadHeightsFile opens path and reads it with LoadHeightsCSV.
func LoadHeightsFile(path string) (*Heights, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer f.Close()
	return LoadHeightsCSV(f)
}

// WriteCSV writes the table with a "sex,height" header.
func (h *Heights) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sex", "height"}); err != nil {
		return errors.WithStack(err)
	}
	for i := range h.Height {
		rec := []string{h.Sex[i].String(), strconv.FormatFloat(h.Height[i], 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return errors.WithStack(err)
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}
