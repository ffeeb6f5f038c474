package actions

// A list of status codes used inside the application. For more details see: https://httpstatuses.com/

// OK - success
const OK = 200

// Created - resource created
const Created = 201

// BadRequest - sent when a bad request was submitted by the client
const BadRequest = 400

// NotFound - the resource identified by the given ID does not exist
const NotFound = 404

// Conflict - the request is valid but the current balances or positions do not allow it
const Conflict = 409

// ValidationFailed - the request did not pass field verification
const ValidationFailed = 422

// ServerError - internal server error
const ServerError = 500

// GatewayTimeout - the request did not complete before its deadline
const GatewayTimeout = 504
