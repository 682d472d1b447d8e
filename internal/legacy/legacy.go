package legacy

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"prefstore/internal/logging"
	"prefstore/pkg/prefs"
)

var logger = logging.For("legacy")

// Entry is one typed value read from a legacy preference file.
type Entry struct {
	Key   prefs.Key
	Value any
}

type xmlMap struct {
	XMLName xml.Name  `xml:"map"`
	Items   []xmlItem `xml:",any"`
}

type xmlItem struct {
	XMLName xml.Name
	Name    string `xml:"name,attr"`
	Value   string `xml:"value,attr"`
	Text    string `xml:",chardata"`
}

// Read parses a shared-preferences XML document:
//
//	<map>
//	  <int name="count" value="3"/>
//	  <string name="lang">it</string>
//	</map>
//
// Elements of unsupported kinds (string sets) and values that do not parse
// are skipped with a warning.
func Read(r io.Reader) ([]Entry, error) {
	var doc xmlMap
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing legacy preferences: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Items))
	for _, it := range doc.Items {
		e, err := it.entry()
		if err != nil {
			logger.Warn("skipping legacy entry", "tag", it.XMLName.Local, "name", it.Name, "err", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadFile reads the legacy file at path. A missing file yields no entries.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening legacy preferences: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func (it xmlItem) entry() (Entry, error) {
	if it.Name == "" {
		return Entry{}, errors.New("missing name attribute")
	}
	switch it.XMLName.Local {
	case "int":
		v, err := strconv.ParseInt(it.Value, 10, 32)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Key: prefs.IntKey(it.Name), Value: int32(v)}, nil
	case "long":
		v, err := strconv.ParseInt(it.Value, 10, 64)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Key: prefs.LongKey(it.Name), Value: v}, nil
	case "float":
		v, err := strconv.ParseFloat(it.Value, 32)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Key: prefs.FloatKey(it.Name), Value: float32(v)}, nil
	case "boolean":
		v, err := strconv.ParseBool(it.Value)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Key: prefs.BooleanKey(it.Name), Value: v}, nil
	case "string":
		return Entry{Key: prefs.StringKey(it.Name), Value: it.Text}, nil
	}
	return Entry{}, fmt.Errorf("unsupported element <%s>", it.XMLName.Local)
}
