package testutil

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// Execute runs c with args and returns everything written to stdout. Logs go
// to stderr and are not captured.
func Execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	c.SetOut(w)
	c.SetErr(w)
	c.SetArgs(args)
	err = c.ExecuteContext(context.Background())

	w.Close()
	os.Stdout = old
	c.SetOut(nil)
	c.SetErr(nil)
	out := <-outC

	return strings.TrimSpace(out), err
}
