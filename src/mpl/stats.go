package mpl

// Stats is a snapshot of the counters of an Engine.
type Stats struct {
	// TxCount and RxCount count every message sent and received, data and
	// control alike.
	TxCount int `json:"tx"`
	RxCount int `json:"rx"`

	// JoinTimeSeconds is the time between engine creation and Join.
	JoinTimeSeconds float64 `json:"join_time_sec"`

	ParentChangeCount int `json:"num_parent_changes"`

	DataSent        int `json:"data_sent"`
	ControlSent     int `json:"control_sent"`
	DataReceived    int `json:"data_received"`
	ControlReceived int `json:"control_received"`
	Accepted        int `json:"accepted"`
	Rejected        int `json:"rejected"`
	Retransmissions int `json:"retransmissions"`
	Retired         int `json:"retired"`
	ControlResets   int `json:"control_resets"`
	Seeds           int `json:"seeds"`
	Buffered        int `json:"buffered"`
}
