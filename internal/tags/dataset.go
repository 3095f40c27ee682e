package tags

import "fmt"

// Category is one logical partition of the input data.
type Category string

const (
	Success   Category = "success"
	Fail      Category = "fail"
	Reference Category = "reference"
)

// Categories lists every category in reporting order.
var Categories = []Category{Success, Fail, Reference}

// Source tells where the log file of a category is found.
type Source struct {
	Category Category
	Pattern  string
}

// Dataset holds one table per category along with the file it came from.
type Dataset struct {
	Tables map[Category]*Table
	Paths  map[Category]string
}

// Table returns the table of c, or nil if the category was not loaded.
func (d *Dataset) Table(c Category) *Table {
	return d.Tables[c]
}

// Distribution returns the count values of category c.
func (d *Dataset) Distribution(c Category) []int {
	t := d.Tables[c]
	if t == nil {
		return nil
	}
	return t.Values()
}

// LoadDataset discovers and parses the file of every source.
// It stops at the first failure.
func LoadDataset(sources []Source, policy DuplicatePolicy) (*Dataset, error) {
	ds := &Dataset{
		Tables: make(map[Category]*Table, len(sources)),
		Paths:  make(map[Category]string, len(sources)),
	}

	for _, src := range sources {
		path, err := Discover(src.Pattern)
		if err != nil {
			return nil, fmt.Errorf("discovering %s log: %w", src.Category, err)
		}

		table, err := LoadFile(path, policy)
		if err != nil {
			return nil, fmt.Errorf("loading %s log: %w", src.Category, err)
		}

		ds.Tables[src.Category] = table
		ds.Paths[src.Category] = path
	}

	return ds, nil
}
