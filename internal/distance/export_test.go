package distance

import "time"

// SetBackoff shortens the retry backoff so tests do not sleep.
func (o *ORSClient) SetBackoff(d time.Duration) { o.backoff = d }
