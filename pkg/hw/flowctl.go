package hw

// RTSFlowControl drives transmit-enable through the RTS line of the port,
// for adapters wiring RTS to the DE/RE pins of the transceiver.
type RTSFlowControl struct {
	Port     SerialPort
	Inverted bool
}

// SetTransmit implements lgap.FlowControl.
func (c *RTSFlowControl) SetTransmit(on bool) error {
	return c.Port.SetRTS(on != c.Inverted)
}

func (c *RTSFlowControl) String() string {
	if c.Inverted {
		return "RTS (inverted)"
	}
	return "RTS"
}
