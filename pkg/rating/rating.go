// Package rating turns like and dislike counts into the 0-10 score shown next
// to a book.
package rating

import "math"

// Max is the best score a book can get.
const Max = 10

// Compute returns max(likes-dislikes, 0) / (likes+dislikes) * Max rounded to
// four decimal places, or 0 when nobody voted yet. The book page ships the
// same formula as inline JavaScript, so the two must stay in sync.
func Compute(likes, dislikes int) float64 {
	likes = max(likes, 0)
	dislikes = max(dislikes, 0)
	total := likes + dislikes
	if total == 0 {
		return 0
	}
	v := float64(max(likes-dislikes, 0)) / float64(total) * Max
	return math.Round(v*10000) / 10000
}
