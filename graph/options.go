package graph

import "context"

type Option func(*Options)

type Options struct {
	URI      string
	Username string
	Password string
	Database string
	Context  context.Context
}

func WithURI(uri string) Option {
	return func(o *Options) {
		o.URI = uri
	}
}

func WithUsername(username string) Option {
	return func(o *Options) {
		o.Username = username
	}
}

func WithPassword(password string) Option {
	return func(o *Options) {
		o.Password = password
	}
}

func WithDatabase(database string) Option {
	return func(o *Options) {
		o.Database = database
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Context:  context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
