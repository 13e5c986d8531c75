package domain

var Tables = []interface{}{
	&BotStatus{},
	&BotSessionSnapshot{},
	&MessageLog{},
}
