/*
Package abi provides an implementation of the TVM contract ABI (version 2.x) type system.

Basic Operations

This package can parse ABI type descriptors using the `abi.TypeOf()` function, and whole contract
interfaces using `abi.LoadContract()`.

Values are carried as tokens: a `Token` couples a parameter name and `Type` with a `Value`. Tokens are
built from JSON-like value trees with `ParseTokens()`, serialized into a cell tree with `Pack()` and read
back with `Unpack()`. Function and event bodies add a 32-bit id in front of their parameters; a
`Contract` can match a body back to the function or event that produced it.
*/
package abi
