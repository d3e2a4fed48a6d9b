package debug

import "io"

// multiWriter writes every line to all transmitters even when one fails.
type multiWriter []io.Writer

// Fanout returns a writer that copies each write to every w. Unlike
// io.MultiWriter it keeps going after an error and reports the first one.
func Fanout(ws ...io.Writer) io.Writer {
	if len(ws) == 1 {
		return ws[0]
	}
	return multiWriter(ws)
}

func (m multiWriter) Write(p []byte) (int, error) {
	var first error
	for _, w := range m {
		if _, err := w.Write(p); err != nil && first == nil {
			first = err
		}
	}
	if first != nil {
		return 0, first
	}
	return len(p), nil
}
