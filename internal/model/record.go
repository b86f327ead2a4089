package model

// Record represents a single social-media post with its hand-coded stance
type Record struct {
	ID     string `json:"id"`               // Stable unique identifier
	Text   string `json:"text"`             // Raw post text (may be empty)
	Stance string `json:"stance,omitempty"` // Hand-coded stance label; empty = unlabeled
}

// IsLabeled reports whether the record carries a stance label
func (r Record) IsLabeled() bool {
	return r.Stance != ""
}

// Dataset is an ordered collection of records loaded from one source
type Dataset struct {
	Records []Record
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Labels returns the stance label of every record, in record order
func (d *Dataset) Labels() []string {
	labels := make([]string, len(d.Records))
	for i, r := range d.Records {
		labels[i] = r.Stance
	}
	return labels
}

// Texts returns the raw text of every record, in record order
func (d *Dataset) Texts() []string {
	texts := make([]string, len(d.Records))
	for i, r := range d.Records {
		texts[i] = r.Text
	}
	return texts
}

// Classes returns the sorted set of distinct stance labels among labeled records
func (d *Dataset) Classes() []string {
	return ClassSet(d.Labels())
}

// Labeled returns a new dataset containing only records with a stance label.
// Record order is preserved.
func (d *Dataset) Labeled() *Dataset {
	out := &Dataset{}
	for _, r := range d.Records {
		if r.IsLabeled() {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Unlabeled returns a new dataset containing only records without a stance label
func (d *Dataset) Unlabeled() *Dataset {
	out := &Dataset{}
	for _, r := range d.Records {
		if !r.IsLabeled() {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Subset returns a new dataset with the records at the given indices, in the
// given order
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{Records: make([]Record, len(indices))}
	for i, idx := range indices {
		out.Records[i] = d.Records[idx]
	}
	return out
}
