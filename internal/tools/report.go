package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/dedent"
)

const reportTemplate = `
	Spotify MCP configuration report

	Credentials:
	  CLIENT_ID:     %s
	  CLIENT_SECRET: %s
	  REDIRECT_URI:  %s
	  REFRESH_TOKEN: %s

	Grant mode: %s
	Token: %s
	Playback privilege: %s
	Active device: %s

	Session counters:
	  tool calls: %d
	  failures:   %d
	  grants:     %d
`

// ConfigReport builds the fixed-format troubleshooting report behind the
// debug-config tool and the debug command. It attempts a token grant and
// a device listing, so a healthy report proves the credentials work
// end to end.
func (r *Registry) ConfigReport(ctx context.Context) string {
	creds := r.cfg.Credentials.Spotify

	redirect := "not set"
	if creds.RedirectURI != "" {
		redirect = "set (" + creds.RedirectURI + ")"
	}

	mode := r.tokens.GrantMode()
	if !r.tokens.UserScoped() {
		mode += " (reduced capability)"
	}

	tokenLine := ""
	if _, err := r.tokens.Token(ctx); err != nil {
		tokenLine = "FAILED (" + err.Error() + ")"
	} else {
		remaining := r.tokens.Expiry().Sub(r.now()).Round(time.Second)
		tokenLine = fmt.Sprintf("OK (expires in %s)", remaining)
	}

	privilege := "yes (refresh token configured)"
	if !r.tokens.UserScoped() {
		privilege = "no (run the auth command to mint a refresh token)"
	}

	deviceLine := "none found"
	if devices, err := r.svc.Devices(ctx); err != nil {
		deviceLine = "unknown (" + err.Error() + ")"
	} else {
		for _, d := range devices {
			if d.Active {
				deviceLine = "yes (" + d.Name + ")"
				break
			}
		}
		if deviceLine == "none found" && len(devices) > 0 {
			deviceLine = fmt.Sprintf("none active (%d available)", len(devices))
		}
	}

	report := fmt.Sprintf(dedent.Dedent(reportTemplate),
		setOrNot(creds.ClientID),
		setOrNot(creds.ClientSecret),
		redirect,
		setOrNot(creds.RefreshToken),
		mode,
		tokenLine,
		privilege,
		deviceLine,
		r.calls.Load(),
		r.failures.Load(),
		r.tokens.Grants(),
	)

	return strings.TrimSpace(report)
}

func setOrNot(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}
