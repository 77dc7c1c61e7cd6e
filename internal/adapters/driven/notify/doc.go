// Package notify delivers job outcomes: SMTP mail to the job's creator, a
// log-only fallback, and the webhook that asks the search index to refresh
// volumes and pages.
package notify
