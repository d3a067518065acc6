package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/noah-isme/event-registration/internal/eventcfg"
	"github.com/noah-isme/event-registration/internal/obs"
	"github.com/noah-isme/event-registration/internal/pricing"
	"github.com/noah-isme/event-registration/internal/registration"
)

func main() {
	eventPath := flag.String("event", "", "path to the event document (<slug>.json)")
	inputPath := flag.String("input", "-", "quote request JSON file, - for stdin")
	coupon := flag.String("coupon", "", "coupon code, overrides the request")
	method := flag.String("method", "", "payment method id, overrides the request")
	at := flag.String("at", "", "evaluate at this RFC3339 time instead of now")
	asJSON := flag.Bool("json", false, "print the full quote as JSON")
	verbose := flag.Bool("v", false, "log engine decisions")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := obs.NewLogger("console", level)

	if strings.TrimSpace(*eventPath) == "" {
		logger.Fatal().Msg("-event is required")
	}
	dir, file := filepath.Split(*eventPath)
	slug := strings.TrimSuffix(file, filepath.Ext(file))
	if dir == "" {
		dir = "."
	}

	req, err := readRequest(*inputPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("read quote request")
	}
	if *coupon != "" {
		req.CouponCode = *coupon
	}
	if *method != "" {
		req.PaymentMethod = *method
	}

	now := time.Now
	if *at != "" {
		fixed, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse -at")
		}
		now = func() time.Time { return fixed }
	}

	svc := &registration.Service{
		Events: &eventcfg.Store{Dir: dir, Logger: logger},
		Now:    now,
		Logger: logger,
	}
	out, err := svc.Quote(context.Background(), slug, req)
	if err != nil {
		logger.Fatal().Err(err).Str("event", slug).Msg("quote failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			logger.Fatal().Err(err).Msg("encode quote")
		}
		return
	}
	printQuote(os.Stdout, out)
}

func readRequest(path string) (registration.QuoteRequest, error) {
	var req registration.QuoteRequest
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode %s: %w", path, err)
	}
	return req, nil
}

func printQuote(w io.Writer, out registration.QuoteResponse) {
	format := func(m pricing.Money) string { return pricing.Format(m, out.Currency) }
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tAGE\tLODGING\tEVENT\tTOTAL")
	for _, row := range out.Registrants {
		age := "-"
		if row.Age != nil {
			age = fmt.Sprint(*row.Age)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", row.Seq, row.Name, age,
			lineLabel(row.Lodging, format), lineLabel(row.Event, format), format(row.Total))
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Subtotal:          %s\n", out.Display.Subtotal)
	if out.GatewayFee > 0 {
		fmt.Fprintf(w, "  incl. fees:      %s\n", out.Display.GatewayFee)
	}
	if out.Coupon != nil {
		fmt.Fprintf(w, "Coupon %s: %s\n", out.Coupon.Code, out.Coupon.Message)
	}
	if out.CouponDiscount > 0 {
		fmt.Fprintf(w, "Coupon discount:  -%s\n", out.Display.CouponDiscount)
	}
	if out.PaymentDiscount > 0 {
		fmt.Fprintf(w, "Payment discount: -%s\n", out.Display.PaymentDiscount)
	}
	fmt.Fprintf(w, "Total:             %s\n", out.Display.Total)
}

func lineLabel(li pricing.LineItem, format func(pricing.Money) string) string {
	if li.Description == "" {
		return format(li.Value)
	}
	return fmt.Sprintf("%s (%s)", format(li.Value), li.Description)
}
