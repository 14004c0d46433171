package input

type Options struct {
	JSON          bool
	Form          bool
	Multipart     bool
	ReadStdin     bool
	DefaultScheme string
}
