package radar

import (
	"bytes"
	"strings"
	"time"
)

// MockPort is an in-memory console for exercising the command protocol
// without hardware. Each written command is echoed back followed by a
// scripted reply (or "Done") and the firmware prompt.
type MockPort struct {
	// Replies maps a command name to the status line the mock should
	// answer with. Commands without an entry get "Done".
	Replies map[string]string

	// Sent records every command line written, in order.
	Sent []string

	Closed bool

	out bytes.Buffer
}

func (m *MockPort) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	m.Sent = append(m.Sent, line)

	name := line
	if i := strings.IndexByte(line, ' '); i >= 0 {
		name = line[:i]
	}
	reply := "Done"
	if r, ok := m.Replies[name]; ok {
		reply = r
	}
	m.out.WriteString(line + "\n" + reply + "\n" + prompt)
	return len(p), nil
}

func (m *MockPort) Read(p []byte) (int, error) {
	return m.out.Read(p)
}

func (m *MockPort) Close() error {
	m.Closed = true
	return nil
}

func (m *MockPort) ResetInputBuffer() error {
	m.out.Reset()
	return nil
}

func (m *MockPort) ResetOutputBuffer() error { return nil }

func (m *MockPort) SetReadTimeout(time.Duration) error { return nil }
