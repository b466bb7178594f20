package cache

import "time"

// PostTTL bounds how long a single post stays cached after a read.
const PostTTL = 10 * time.Minute

// PostKey is the cache key of a single post.
func PostKey(id string) string { return "post:" + id }
