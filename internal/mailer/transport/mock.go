package transport

import (
	"sync"

	"github.com/jordan-wright/email"
)

// MockMailTransport records sent mail instead of delivering it.
type MockMailTransport struct {
	mu    sync.RWMutex
	mails []*email.Email
}

func NewMock() *MockMailTransport {
	return &MockMailTransport{}
}

func (m *MockMailTransport) Send(mail *email.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, mail)
	return nil
}

func (m *MockMailTransport) GetLastSentMail() *email.Email {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.mails) == 0 {
		return nil
	}
	return m.mails[len(m.mails)-1]
}

func (m *MockMailTransport) GetSentMails() []*email.Email {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*email.Email{}, m.mails...)
}
