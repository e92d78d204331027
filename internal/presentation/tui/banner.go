package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the wayfinder banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` __      __              _____.__            .___`, "#818cf8"},
		{`/  \    /  \_____  ___.._/ ____\__| ____   __| _/___________`, "#a78bfa"},
		{`\   \/\/   /\__  \<   |  \   __\|  |/    \ / __ |/ __ \_  __ \`, "#c084fc"},
		{` \        /  / __ \\___  ||  |  |  |   |  / /_/ \  ___/|  | \/`, "#e879f9"},
		{`  \__/\  /  (____  / ____||__|  |__|___|  \____ |\___  >__|`, "#f472b6"},
		{`       \/        \/\/                   \/     \/    \/`, "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
