package curl

// EnvVar is an environment variable set in front of the curl invocation.
type EnvVar struct {
	Name  string
	Value string
}

// Command is a curl invocation independent of any shell dialect.
type Command struct {
	Long     bool
	Args     []string
	Env      []EnvVar
	Warnings []string
}

func newCommand(long bool) *Command {
	return &Command{Long: long}
}

func (c *Command) flag(short, long string) {
	if c.Long {
		c.Args = append(c.Args, long)
	} else {
		c.Args = append(c.Args, short)
	}
}

func (c *Command) push(args ...string) {
	c.Args = append(c.Args, args...)
}

func (c *Command) header(name, value string) {
	c.flag("-H", "--header")
	c.push(name + ": " + value)
}

func (c *Command) env(name, value string) {
	c.Env = append(c.Env, EnvVar{Name: name, Value: value})
}

func (c *Command) warn(message string) {
	c.Warnings = append(c.Warnings, message)
}
