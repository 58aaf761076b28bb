package keel

// Arg is a bound argument. An Arg without a name is positional and binds to
// the next parameter in declaration order.
//
// Value is either a plain value or a nested Definition, which is resolved
// before the call.
type Arg struct {
	Name  string
	Value any
}

// Args is an ordered list of bound arguments.
type Args []Arg

// Pos returns positional arguments for the given values.
func Pos(values ...any) Args {
	args := make(Args, len(values))
	for i, v := range values {
		args[i] = Arg{Value: v}
	}
	return args
}

// Named returns an argument bound to the parameter called name.
func Named(name string, value any) Arg {
	return Arg{Name: name, Value: value}
}

// Positional returns the values of the positional arguments in order.
func (a Args) Positional() []any {
	var values []any
	for _, arg := range a {
		if arg.Name == "" {
			values = append(values, arg.Value)
		}
	}
	return values
}

// Lookup returns the values bound to name in declaration order.
func (a Args) Lookup(name string) []any {
	var values []any
	for _, arg := range a {
		if arg.Name != "" && arg.Name == name {
			values = append(values, arg.Value)
		}
	}
	return values
}

// Names returns the distinct argument names in declaration order.
func (a Args) Names() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, arg := range a {
		if arg.Name == "" {
			continue
		}
		if _, ok := seen[arg.Name]; ok {
			continue
		}
		seen[arg.Name] = struct{}{}
		names = append(names, arg.Name)
	}
	return names
}
