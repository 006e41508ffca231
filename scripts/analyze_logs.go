package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

type LogStats struct {
	TotalErrors         int
	BookingsCreated     int
	BookingsRejected    int
	StatusChanges       int
	RefundsRequired     int
	PaymentsInitiated   int
	PlaceholderPayments int
	SignatureRejections int
	BreakerTrips        int
	StaleCancelled      int
	WebhookOutcomes     map[string]int
	ListingActivity     map[string]int
	ErrorPatterns       map[string]int
}

func newLogStats() *LogStats {
	return &LogStats{
		WebhookOutcomes: make(map[string]int),
		ListingActivity: make(map[string]int),
		ErrorPatterns:   make(map[string]int),
	}
}

var (
	msgRegex        = regexp.MustCompile(`msg="((?:[^"\\]|\\.)*)"`)
	listingRegex    = regexp.MustCompile(`on listing ([A-Za-z0-9-]+)`)
	outcomeRegex    = regexp.MustCompile(`^Webhook \S+ \S+ for \S+: (\S+)$`)
	staleCountRegex = regexp.MustCompile(`^Cancelled (\d+) stale pending bookings`)
	uuidRegex       = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

func main() {
	// Get today's date for log file names
	today := time.Now().Format("2006-01-02")
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "./logs"
	}

	stats := newLogStats()
	analyzeFile(filepath.Join(logDir, fmt.Sprintf("error-%s.log", today)), stats, analyzeErrorLogs)
	analyzeFile(filepath.Join(logDir, fmt.Sprintf("info-%s.log", today)), stats, analyzeInfoLogs)

	printReport(os.Stdout, stats)
}

func analyzeFile(logFile string, stats *LogStats, analyze func(io.Reader, *LogStats)) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()
	analyze(file, stats)
}

// message extracts the msg field of a logrus text line
func message(line string) string {
	m := msgRegex.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	return strings.ReplaceAll(m[1], `\"`, `"`)
}

func analyzeErrorLogs(r io.Reader, stats *LogStats) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		msg := message(line)

		if strings.Contains(line, "level=error") {
			stats.TotalErrors++
			extractErrorPattern(msg, stats)
		}

		switch {
		case strings.HasPrefix(msg, "Booking on listing") && strings.Contains(msg, "rejected"):
			stats.BookingsRejected++
			extractListingActivity(msg, stats)
		case strings.Contains(msg, "invalid signature"):
			stats.SignatureRejections++
		case strings.HasPrefix(msg, "Payment provider") && strings.Contains(msg, "unavailable"):
			stats.PlaceholderPayments++
		case strings.HasPrefix(msg, "Circuit breaker") && strings.HasSuffix(msg, "to open"):
			stats.BreakerTrips++
		case strings.Contains(msg, "refund required"):
			stats.RefundsRequired++
		}
	}
}

func analyzeInfoLogs(r io.Reader, stats *LogStats) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		msg := message(scanner.Text())

		switch {
		case strings.HasPrefix(msg, "Booking ") && strings.Contains(msg, " created on listing "):
			stats.BookingsCreated++
			extractListingActivity(msg, stats)
		case strings.HasPrefix(msg, "Booking ") && strings.Contains(msg, " moved from "):
			stats.StatusChanges++
		case strings.HasPrefix(msg, "Payment ") && strings.Contains(msg, " initiated for booking "):
			stats.PaymentsInitiated++
		}

		if m := outcomeRegex.FindStringSubmatch(msg); m != nil {
			stats.WebhookOutcomes[m[1]]++
		}
		if m := staleCountRegex.FindStringSubmatch(msg); m != nil {
			var n int
			fmt.Sscanf(m[1], "%d", &n)
			stats.StaleCancelled += n
		}
	}
}

func extractListingActivity(msg string, stats *LogStats) {
	if m := listingRegex.FindStringSubmatch(msg); m != nil {
		stats.ListingActivity[m[1]]++
	}
}

func extractErrorPattern(msg string, stats *LogStats) {
	// Collapse ids so the same failure on different bookings groups together
	pattern := uuidRegex.ReplaceAllString(msg, "<id>")
	if i := strings.Index(pattern, ": "); i > 0 {
		pattern = pattern[:i]
	}
	stats.ErrorPatterns[strings.TrimSpace(pattern)]++
}

func printReport(w io.Writer, stats *LogStats) {
	fmt.Fprintln(w, "\n=== Log Analysis Report ===")
	fmt.Fprintln(w, "Generated:", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, "\n1. Bookings:")
	fmt.Fprintf(w, "   Created: %d\n", stats.BookingsCreated)
	fmt.Fprintf(w, "   Rejected: %d\n", stats.BookingsRejected)
	fmt.Fprintf(w, "   Status Changes: %d\n", stats.StatusChanges)
	fmt.Fprintf(w, "   Stale Pending Cancelled: %d\n", stats.StaleCancelled)
	fmt.Fprintf(w, "   Refunds Required: %d\n", stats.RefundsRequired)

	fmt.Fprintln(w, "\n2. Payments:")
	fmt.Fprintf(w, "   Initiated: %d\n", stats.PaymentsInitiated)
	fmt.Fprintf(w, "   Placeholder Fallbacks: %d\n", stats.PlaceholderPayments)
	fmt.Fprintf(w, "   Circuit Breaker Trips: %d\n", stats.BreakerTrips)
	fmt.Fprintf(w, "   Webhook Signature Rejections: %d\n", stats.SignatureRejections)
	fmt.Fprintln(w, "   Webhook Outcomes:")
	printTop(w, stats.WebhookOutcomes, 10, "events")

	fmt.Fprintln(w, "\n3. Error Statistics:")
	fmt.Fprintf(w, "   Total Errors: %d\n", stats.TotalErrors)

	fmt.Fprintln(w, "\n4. Busiest Listings:")
	printTop(w, stats.ListingActivity, 5, "booking attempts")

	fmt.Fprintln(w, "\n5. Most Common Errors:")
	printTop(w, stats.ErrorPatterns, 5, "occurrences")
}

func printTop(w io.Writer, counts map[string]int, limit int, unit string) {
	type entry struct {
		key   string
		count int
	}

	var entries []entry
	for key, count := range counts {
		entries = append(entries, entry{key, count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count == entries[j].count {
			return entries[i].key < entries[j].key
		}
		return entries[i].count > entries[j].count
	})

	for i, e := range entries {
		if i >= limit {
			break
		}
		fmt.Fprintf(w, "   %s: %d %s\n", e.key, e.count, unit)
	}
}
