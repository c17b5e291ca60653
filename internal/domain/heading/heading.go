package heading

// Heading is a page heading shown as a search suggestion.
type Heading struct {
	Level int // 1..3
	Text  string
}
