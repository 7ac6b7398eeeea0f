// Package redisstore implements the notes store on top of Redis.
//
// Notes live in a hash (<prefix>notes, id -> JSON) next to a list of ids kept
// newest first (<prefix>order). Every create is published on <prefix>created,
// which is what SubscribeOnCreate listens to. Updates use WATCH so concurrent
// toggles from several clients never lose a field.
package redisstore
