package core

// utoa formats n in decimal without pulling fmt into firmware builds
func utoa(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// onOff renders an output level for debug lines
func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
