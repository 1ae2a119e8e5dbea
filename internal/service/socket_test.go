package service

import (
	"strings"
	"testing"
)

func TestSocketPathDeterministic(t *testing.T) {
	a := SocketPath("/home/dev/project")
	b := SocketPath("/home/dev/project")
	if a != b {
		t.Errorf("same workspace produced different sockets: %s vs %s", a, b)
	}
	if !strings.HasSuffix(a, ".sock") {
		t.Errorf("unexpected socket name: %s", a)
	}
}

func TestSocketPathDistinctWorkspaces(t *testing.T) {
	a := SocketPath("/home/dev/project-a")
	b := SocketPath("/home/dev/project-b")
	if a == b {
		t.Errorf("distinct workspaces share a socket: %s", a)
	}
}
