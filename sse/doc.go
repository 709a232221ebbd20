// Package sse serves flows over Server-Sent Events.
//
// Every request collects its flow independently, so a cold flow produces a
// fresh sequence per subscriber. Values are written as data events, a comment
// line keeps idle connections open, and the stream ends with a complete or
// error event. A client disconnect cancels the collection.
//
// # Usage
//
//	router.GET("/ticks", sse.Handler(func(c *gin.Context) (*flow.Flow[int], error) {
//		return flow.Take(ticks, 10), nil
//	}, sse.JSON[int]))
package sse
