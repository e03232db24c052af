package main

var TruncateURL = truncateURL
