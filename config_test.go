package ember

import "testing"

type fakeGateway struct{}

func (fakeGateway) Respond(req *Request) {}

func TestConfigValidateFillsDefaults(t *testing.T) {
	c := Config{
		BindAddr:   "127.0.0.1:0",
		Gateway:    fakeGateway{},
		ServerName: "test",
		Protocol:   "HTTP/1.1",
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Timeout <= 0 {
		t.Error("Validate should default Timeout to a positive value")
	}
	if c.ShutdownTimeout <= 0 {
		t.Error("Validate should default ShutdownTimeout to a positive value")
	}
	if c.RequestQueueSize <= 0 {
		t.Error("Validate should default RequestQueueSize to a positive value")
	}
	if c.ErrorLog == nil {
		t.Error("Validate should install a default no-op ErrorLog")
	}
}

func TestConfigValidateRejectsMissingGateway(t *testing.T) {
	c := Config{
		BindAddr:   "127.0.0.1:0",
		ServerName: "test",
		Protocol:   "HTTP/1.1",
	}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for a missing Gateway")
	}
}

func TestConfigValidateRejectsBadProtocol(t *testing.T) {
	c := Config{
		BindAddr:   "127.0.0.1:0",
		Gateway:    fakeGateway{},
		ServerName: "test",
		Protocol:   "HTTP/0.9",
	}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for an unsupported Protocol value")
	}
}
