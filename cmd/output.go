package cmd

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
