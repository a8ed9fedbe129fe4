package app

import "travelbuddy/internal/domain"

// Routes a flow can redirect to.
const (
	RouteHome       = "/"
	RouteLogin      = "/login/"
	RouteRegister   = "/register/"
	RouteBook       = "/book/"
	RouteMyBookings = "/my-bookings/"
	RouteContact    = "/contact/"
)

// Pages a flow can render.
const (
	PageHome       = "home"
	PageLogin      = "login"
	PageRegister   = "register"
	PageBook       = "book"
	PageMyBookings = "my_bookings"
	PageContact    = "contact"
	PageNotFound   = "not_found"
)

// ResultKind tags the outcome of a flow.
type ResultKind int

// Outcomes of a flow.
const (
	Rendered ResultKind = iota + 1
	Redirected
	Failed
)

func (k ResultKind) String() string {
	switch k {
	case Rendered:
		return "rendered"
	case Redirected:
		return "redirected"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result is what every flow returns. Rendered and Failed name a Page; a
// Failed result carries the failure and is rendered on that page.
// Redirected names a Route. Grant, ClearSession and Flash are directives
// for the transport's session handling and apply to any kind.
type Result struct {
	Kind    ResultKind
	Page    string
	Data    map[string]any
	Route   string
	Failure *domain.Error

	Grant        *SessionGrant
	ClearSession bool
	Flash        string
}

// Render builds a Rendered result.
func Render(page string, data map[string]any) Result {
	return Result{Kind: Rendered, Page: page, Data: data}
}

// Redirect builds a Redirected result.
func Redirect(route string) Result {
	return Result{Kind: Redirected, Route: route}
}

// Fail builds a Failed result shown on page. err must be a *domain.Error.
func Fail(page string, err error, data map[string]any) Result {
	f := &domain.Error{Kind: domain.KindOf(err), Message: domain.MessageOf(err)}
	return Result{Kind: Failed, Page: page, Data: data, Failure: f}
}
