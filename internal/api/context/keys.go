package context

type Key string

const (
	Claims Key = "claims"
	Scope  Key = "scope"
	Params Key = "params"
)
