package console

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
)

// NewCompleter completes command names, and image paths after open.
func NewCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("open", readline.PcItemDynamic(func(line string) []string {
			_, arg, _ := strings.Cut(strings.TrimLeft(line, " "), " ")
			return CompletePath(strings.TrimLeft(arg, " "))
		})),
		readline.PcItem("annotate"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
		readline.PcItem("exit"),
	)
}

// CompletePath lists the directories and images whose path starts with prefix.
// Directories end with a separator so completion can continue into them.
func CompletePath(prefix string) []string {
	dir, base := filepath.Split(prefix)
	readDir := dir
	if readDir == "" {
		readDir = "."
	}
	entries, err := os.ReadDir(expandHome(readDir))
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		switch {
		case e.IsDir():
			out = append(out, dir+name+string(filepath.Separator))
		case IsImagePath(name):
			out = append(out, dir+name)
		}
	}
	sort.Strings(out)
	return out
}
