package main

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
}

type Config struct {
	Port     int         `json:"port"`
	Database string      `json:"database"`
	Redis    RedisConfig `json:"redis"`
	// publication channels fanned out per saved offer; defaults to
	// offers.DefaultChannels when empty
	Channels []string `json:"channels"`
}
