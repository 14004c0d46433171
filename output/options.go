package output

type Options struct {
	PrintRequestHeader  bool
	PrintRequestBody    bool
	PrintResponseHeader bool
	PrintResponseBody   bool

	EnableFormat bool
	EnableColor  bool

	// Raw values of the flags that select what is printed. Empty when the
	// flag was not given.
	PrintFlag string
	Pretty    string
	Style     string

	Verbose     bool
	HeadersOnly bool
	BodyOnly    bool
	Quiet       bool
	Stream      bool
	CheckStatus bool

	Download   bool
	OutputFile string
	Resume     bool
	Overwrite  bool
}
