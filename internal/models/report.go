package models

// BlockType identifies how a block is rendered.
type BlockType string

const (
	BlockInfo          BlockType = "info"
	BlockWarning       BlockType = "warning"
	BlockError         BlockType = "error"
	BlockSuccess       BlockType = "success"
	BlockTable         BlockType = "table"
	BlockChartControls BlockType = "chart_controls"
	BlockImage         BlockType = "image"
	BlockTextArea      BlockType = "text_area"
	BlockListing       BlockType = "listing"
	BlockAction        BlockType = "action"
)

// ActionExtract is the action offered for ZIP archives.
const ActionExtract = "extract"

// TextAreaHeight is the fixed height, in pixels, of extracted-text blocks.
const TextAreaHeight = 300

// Image describes a decoded image.
type Image struct {
	Caption string `json:"caption"`
	Format  string `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Block is one rendered element of a report.
type Block struct {
	Type   BlockType      `json:"type"`
	Title  string         `json:"title,omitempty"`
	Text   string         `json:"text,omitempty"`
	Height int            `json:"height,omitempty"`
	Table  *Table         `json:"table,omitempty"`
	Image  *Image         `json:"image,omitempty"`
	Chart  *ChartControls `json:"chart,omitempty"`
	Items  []string       `json:"items,omitempty"`
	Action string         `json:"action,omitempty"`
}

// Report is the output of one inspection.
type Report struct {
	ID     string       `json:"id,omitempty"`
	File   *FileDetails `json:"file,omitempty"`
	Kind   string       `json:"kind,omitempty"`
	Blocks []Block      `json:"blocks"`
}

// Add appends a block.
func (r *Report) Add(b Block) {
	r.Blocks = append(r.Blocks, b)
}

// Message appends a plain message block of the given type.
func (r *Report) Message(t BlockType, text string) {
	r.Add(Block{Type: t, Text: text})
}

// Find returns the first block of type t.
func (r *Report) Find(t BlockType) (*Block, bool) {
	for i := range r.Blocks {
		if r.Blocks[i].Type == t {
			return &r.Blocks[i], true
		}
	}
	return nil, false
}

// Table returns the table of the first table block, if any.
func (r *Report) Table() *Table {
	if b, ok := r.Find(BlockTable); ok {
		return b.Table
	}
	return nil
}

// Clone returns a copy of r whose block slice can be modified independently.
// Tables and images are shared.
func (r *Report) Clone() *Report {
	out := *r
	out.Blocks = make([]Block, len(r.Blocks))
	copy(out.Blocks, r.Blocks)
	for i := range out.Blocks {
		if c := out.Blocks[i].Chart; c != nil {
			cc := *c
			out.Blocks[i].Chart = &cc
		}
	}
	return &out
}
