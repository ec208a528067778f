package types

// ------------------------
// Bus event payloads
// ------------------------
//
// The simulated board publishes these so the monitor and tests can watch
// pins, serial traffic and the DAC without reaching into register models.

// LedEvent reports a status LED edge.
type LedEvent struct {
	Color string `json:"color"` // "red", "green", "blue"
	On    bool   `json:"on"`
	TsMs  int64  `json:"ts_ms"`
}

// SerialTxEvent reports bytes shifted out of a USART.
type SerialTxEvent struct {
	Port string `json:"port"`
	Data []byte `json:"data"`
	TsMs int64  `json:"ts_ms"`
}

// DacSample reports one value latched into the DAC channel.
type DacSample struct {
	Channel uint8  `json:"channel"`
	Value   uint16 `json:"value"`
	TsMs    int64  `json:"ts_ms"`
}

// PinEvent reports an output-register change on an I/O port.
type PinEvent struct {
	Port byte  `json:"port"` // 'C'..'F'
	Out  uint8 `json:"out"`
	TsMs int64 `json:"ts_ms"`
}
