package peripheral

const shortIDLength = 8

// ConnectedCentral identifies a subscribed central
type ConnectedCentral struct {
	ID string
}

// ShortID returns the first eight hex characters of the identifier for display.
// Separators such as '-' or ':' are skipped.
func (c ConnectedCentral) ShortID() string {
	out := make([]byte, 0, shortIDLength)
	for i := 0; i < len(c.ID) && len(out) < shortIDLength; i++ {
		if isHex(c.ID[i]) {
			out = append(out, c.ID[i])
		}
	}
	return string(out)
}

func (c ConnectedCentral) String() string {
	return c.ShortID()
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
