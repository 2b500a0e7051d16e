package events

const (
	KindConnectionOpened Kind = "connection.opened"
	KindConnectionLost   Kind = "connection.lost"
)

type ConnectionOpened struct {
	Base
	Generation uint64
}

func NewConnectionOpened(generation uint64) ConnectionOpened {
	return ConnectionOpened{Base: NewBase(KindConnectionOpened), Generation: generation}
}

type ConnectionLost struct {
	Base
	Generation uint64
	Err        error
}

func NewConnectionLost(generation uint64, err error) ConnectionLost {
	return ConnectionLost{Base: NewBase(KindConnectionLost), Generation: generation, Err: err}
}
