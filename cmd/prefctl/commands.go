package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"prefstore/pkg/helper"
	"prefstore/pkg/prefs"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (c *cli) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := c.h.GetAll()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(all) == 0 {
				_, _ = fmt.Fprintln(out, "(empty)")
				return nil
			}
			keys := sortedKeys(all)
			if isTerminal(out) {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "NAME\tKIND\tVALUE")
				for _, k := range keys {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%v\n", k.Name, k.Kind, all[k])
				}
				return tw.Flush()
			}
			for _, k := range keys {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%v\n", k.Name, k.Kind, all[k])
			}
			return nil
		},
	}
}

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the data store identity and location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := c.ds.ID()
			if err != nil {
				return err
			}
			p, err := c.ds.Data()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "name:     %s\n", c.ds.Name())
			_, _ = fmt.Fprintf(out, "id:       %s\n", id)
			_, _ = fmt.Fprintf(out, "path:     %s\n", c.ds.Path())
			_, _ = fmt.Fprintf(out, "data dir: %s\n", c.app.DataDir())
			_, _ = fmt.Fprintf(out, "entries:  %d\n", p.Len())
			return nil
		},
	}
}

func (c *cli) keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every key as name:kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := c.h.GetAll()
			if err != nil {
				return err
			}
			for _, k := range sortedKeys(all) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func (c *cli) stringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "string",
		Short: "Print the data store as a single line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.h.Dump()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <key> [default]",
		Short: "Print the value of a key, or the default when absent",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := prefs.ParseKind(args[0])
			if err != nil {
				return err
			}
			def := ""
			if len(args) == 3 {
				def = args[2]
			}
			v, err := get(c.h, kind, args[1], def)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func (c *cli) putCmd() *cobra.Command {
	var async, showMetrics bool
	cmd := &cobra.Command{
		Use:   "put <kind> <key> <value>",
		Short: "Set the value of a key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := prefs.ParseKind(args[0])
			if err != nil {
				return err
			}
			if err := put(c.h, kind, args[1], args[2], async); err != nil {
				return err
			}
			if async {
				c.h.Wait()
			}
			if showMetrics {
				c.h.WriteMetrics(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "schedule the write and wait for the dispatcher")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print dispatcher counters afterwards")
	return cmd
}

func (c *cli) containsCmd() *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "contains <key>",
		Short: "Report whether a key exists, optionally under one kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				ok  bool
				err error
			)
			if kindName == "" {
				ok, err = c.h.Contains(args[0])
			} else {
				kind, perr := prefs.ParseKind(kindName)
				if perr != nil {
					return perr
				}
				ok, err = contains(c.h, kind, args[0])
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "only look for the key under this kind")
	return cmd
}

func (c *cli) rmCmd() *cobra.Command {
	var async bool
	cmd := &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete a string key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !async {
				return c.h.RemoveSync(args[0])
			}
			if err := c.h.Remove(args[0]); err != nil {
				return err
			}
			c.h.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "schedule the delete and wait for the dispatcher")
	return cmd
}

func get(h *helper.Helper, kind prefs.Kind, key, rawDef string) (any, error) {
	switch kind {
	case prefs.KindInt:
		def, err := parseOr(rawDef, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 32) })
		if err != nil {
			return nil, err
		}
		return h.GetInt(key, int32(def))
	case prefs.KindLong:
		def, err := parseOr(rawDef, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
		if err != nil {
			return nil, err
		}
		return h.GetLong(key, def)
	case prefs.KindFloat:
		def, err := parseOr(rawDef, func(s string) (float64, error) { return strconv.ParseFloat(s, 32) })
		if err != nil {
			return nil, err
		}
		return h.GetFloat(key, float32(def))
	case prefs.KindBoolean:
		def, err := parseOr(rawDef, strconv.ParseBool)
		if err != nil {
			return nil, err
		}
		return h.GetBoolean(key, def)
	case prefs.KindString:
		return h.GetString(key, rawDef)
	}
	return nil, prefs.ErrUnknownKind
}

func put(h *helper.Helper, kind prefs.Kind, key, raw string, async bool) error {
	switch kind {
	case prefs.KindInt:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return err
		}
		if async {
			return h.PutInt(key, int32(v))
		}
		return h.PutIntSync(key, int32(v))
	case prefs.KindLong:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		if async {
			return h.PutLong(key, v)
		}
		return h.PutLongSync(key, v)
	case prefs.KindFloat:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		if async {
			return h.PutFloat(key, float32(v))
		}
		return h.PutFloatSync(key, float32(v))
	case prefs.KindBoolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		if async {
			return h.PutBoolean(key, v)
		}
		return h.PutBooleanSync(key, v)
	case prefs.KindString:
		if async {
			return h.PutString(key, raw)
		}
		return h.PutStringSync(key, raw)
	}
	return prefs.ErrUnknownKind
}

func contains(h *helper.Helper, kind prefs.Kind, key string) (bool, error) {
	switch kind {
	case prefs.KindInt:
		return h.ContainsInt(key)
	case prefs.KindLong:
		return h.ContainsLong(key)
	case prefs.KindFloat:
		return h.ContainsFloat(key)
	case prefs.KindBoolean:
		return h.ContainsBoolean(key)
	case prefs.KindString:
		return h.ContainsString(key)
	}
	return false, prefs.ErrUnknownKind
}

// parseOr parses raw, or returns the zero value when raw is empty.
func parseOr[T any](raw string, parse func(string) (T, error)) (T, error) {
	var zero T
	if raw == "" {
		return zero, nil
	}
	v, err := parse(raw)
	if err != nil {
		return zero, fmt.Errorf("invalid default %q: %w", raw, err)
	}
	return v, nil
}

func sortedKeys(all map[prefs.Key]any) []prefs.Key {
	keys := make([]prefs.Key, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Kind < keys[j].Kind
	})
	return keys
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
