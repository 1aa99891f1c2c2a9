package cpu

// Diagnostics receives the warnings and errors of an assembly.
type Diagnostics interface {
	Warning(err error)
	Error(err error)
}

// Diagnostic is a single recorded warning or error.
type Diagnostic struct {
	Warning bool
	Err     error
}

// Collector records diagnostics in order.
type Collector struct {
	Diagnostics []Diagnostic
}

var _ Diagnostics = (*Collector)(nil)

func (col *Collector) Warning(err error) {
	col.Diagnostics = append(col.Diagnostics, Diagnostic{Warning: true, Err: err})
}

func (col *Collector) Error(err error) {
	col.Diagnostics = append(col.Diagnostics, Diagnostic{Err: err})
}

// Errors returns the recorded errors.
func (col *Collector) Errors() (errs []error) {
	for _, diag := range col.Diagnostics {
		if !diag.Warning {
			errs = append(errs, diag.Err)
		}
	}
	return
}

// Warnings returns the recorded warnings.
func (col *Collector) Warnings() (warns []error) {
	for _, diag := range col.Diagnostics {
		if diag.Warning {
			warns = append(warns, diag.Err)
		}
	}
	return
}

// Counter counts the diagnostics passing through to another sink.
type Counter struct {
	Diagnostics Diagnostics // If nil, diagnostics are only counted.
	Errors      int
	Warnings    int
}

var _ Diagnostics = (*Counter)(nil)

func (cnt *Counter) Warning(err error) {
	cnt.Warnings++
	if cnt.Diagnostics != nil {
		cnt.Diagnostics.Warning(err)
	}
}

func (cnt *Counter) Error(err error) {
	cnt.Errors++
	if cnt.Diagnostics != nil {
		cnt.Diagnostics.Error(err)
	}
}
