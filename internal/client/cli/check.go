package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/mediaqr/internal/client/services"
)

// Check reports whether a shared link still works. Without arguments the link
// is read from the input.
func (a *App) Check(ctx context.Context, args []string) error {
	link := strings.Join(args, " ")
	if len(args) == 0 {
		var err error
		link, err = GetSimpleText(a.reader, "Link or file id to check", a.out)
		if err != nil {
			return err
		}
	}

	report := a.links.CheckLink(ctx, link)

	if report.Status == services.LinkAvailable {
		a.printf("%s\n", report.Message)
		return nil
	}

	a.printf("QR not available: %s\n%s\n", report.Message, report.Hint)
	return nil
}
