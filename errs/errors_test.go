package errs

import (
	"fmt"
	"io"
	"net"
	"testing"
)

func TestNewAndIs(t *testing.T) {
	err := New(MalformedHeader, fmt.Errorf("boom"))
	if !Is(err, MalformedHeader) {
		t.Error("Is should recognize the code it was created with")
	}
	if Is(err, BadContentLength) {
		t.Error("Is should not match an unrelated code")
	}
}

func TestIsIgnorableSocketErrorEOF(t *testing.T) {
	if !IsIgnorableSocketError(io.EOF) {
		t.Error("io.EOF should be an ignorable socket error")
	}
	if !IsIgnorableSocketError(net.ErrClosed) {
		t.Error("net.ErrClosed should be an ignorable socket error")
	}
	if IsIgnorableSocketError(nil) {
		t.Error("nil should never be reported as ignorable")
	}
}

func TestIsAcceptableShutdownErrorNil(t *testing.T) {
	if IsAcceptableShutdownError(nil) {
		t.Error("nil should never be an acceptable shutdown error")
	}
	if !IsAcceptableShutdownError(net.ErrClosed) {
		t.Error("net.ErrClosed should be an acceptable shutdown error")
	}
}

func TestRegistered(t *testing.T) {
	if !Registered() {
		t.Skip("message table already claimed by another package in this test binary")
	}
}
