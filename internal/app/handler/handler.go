// Package handler provides a result type and chain function for console
// command handlers.
package handler

// Result represents the outcome of a command handler.
type Result struct {
	Handled bool
	Output  string
	Err     error
	Quit    bool
}

// NotHandled is returned when a handler doesn't recognize the command.
var NotHandled = Result{}

// HandledNoOutput is a convenience for handlers with nothing to print.
var HandledNoOutput = Result{Handled: true}

// Quit ends the console session.
var Quit = Result{Handled: true, Quit: true}

// Handled creates a Result carrying output for the user.
func Handled(output string) Result {
	return Result{Handled: true, Output: output}
}

// Failed creates a handled Result carrying an error.
func Failed(err error) Result {
	return Result{Handled: true, Err: err}
}

// Handler is a function that attempts to handle a command.
type Handler func() Result

// Chain runs handlers in order until one handles the command.
func Chain(handlers ...Handler) Result {
	for _, h := range handlers {
		if r := h(); r.Handled {
			return r
		}
	}
	return NotHandled
}
