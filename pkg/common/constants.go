package common

const (
	RedisStreamSellEvaluation = "trader.sell.evaluation"

	RedisStreamGroup    = "trader-group"
	RedisStreamConsumer = "trader-consumer"

	// RedisKeyTickerLock is formatted with the ticker symbol.
	RedisKeyTickerLock = "trader:lock:%s"
	// RedisKeySignalPrefix namespaces the redis signal store.
	RedisKeySignalPrefix = "trader:signal"
)
