package util

var NotSupportedError = NewError("not supported")
