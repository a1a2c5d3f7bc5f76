// Package rate implements fixed-window login throttling on Redis counters.
//
// A window starts at the first failed attempt: INCR, then EXPIRE when the
// counter reads 1. Keys:
//   - <prefix>:rl:u:<identifier> per login identifier
//   - <prefix>:rl:ip:<ip> per client IP, when IP throttling is on
package rate
