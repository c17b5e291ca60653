package domain

// KeyPrefix namespaces every key tweetdex writes to the store.
const KeyPrefix = "tweetdex:"
