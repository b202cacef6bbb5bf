package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"knapsackga/internal/model"
)

// Separator splits the name, weight and value fields of a catalog line.
const Separator = ';'

var ErrMalformedLine = errors.New("malformed catalog line")

// Totals summarizes a catalog.
type Totals struct {
	Items  int `json:"items"`
	Weight int `json:"weight"`
	Value  int `json:"value"`
}

// Load reads a catalog file of name;weight;value lines.
func Load(path string) ([]model.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	items, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Parse reads name;weight;value lines in order, ignoring surrounding
// whitespace. Blank lines are skipped, as are lines starting with '#' that
// have fewer than three fields; "#5;1;2" is an item named "#5".
func Parse(in io.Reader) ([]model.Item, error) {
	reader := csv.NewReader(in)
	reader.Comma = Separator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	items := make([]model.Item, 0, 64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blankRecord(record) || commentRecord(record) {
			continue
		}

		item, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrMalformedLine, line, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func parseRecord(record []string) (model.Item, error) {
	if len(record) != 3 {
		return model.Item{}, fmt.Errorf("expected 3 fields name;weight;value, got %d", len(record))
	}
	name := strings.TrimSpace(record[0])
	if name == "" {
		return model.Item{}, errors.New("item name is required")
	}
	weight, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return model.Item{}, fmt.Errorf("parse weight %q: %w", record[1], err)
	}
	if weight <= 0 {
		return model.Item{}, fmt.Errorf("weight must be > 0, got %d", weight)
	}
	value, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return model.Item{}, fmt.Errorf("parse value %q: %w", record[2], err)
	}
	return model.Item{Name: name, Weight: weight, Value: value}, nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func commentRecord(record []string) bool {
	return len(record) < 3 && strings.HasPrefix(strings.TrimSpace(record[0]), "#")
}

// Write renders items in the format Parse reads.
func Write(out io.Writer, items []model.Item) error {
	writer := csv.NewWriter(out)
	writer.Comma = Separator
	for _, item := range items {
		if err := writer.Write([]string{
			item.Name,
			strconv.Itoa(item.Weight),
			strconv.Itoa(item.Value),
		}); err != nil {
			return fmt.Errorf("write catalog item %s: %w", item.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func Summarize(items []model.Item) Totals {
	totals := Totals{Items: len(items)}
	for _, item := range items {
		totals.Weight += item.Weight
		totals.Value += item.Value
	}
	return totals
}
