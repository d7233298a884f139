package asm

// Match scans the catalogue for the mnemonic, speculatively trying each
// matching entry's operand pattern against a cloned cursor. The first entry
// whose classifiers all succeed, with a literal comma between slots and end
// of line after the last one, wins: its recipe runs and the real cursor is
// advanced to the end of the matched line.
func Match(cur *Cursor, mnemonic string) (*Instruction, error) {
	found := false
	var bestErr error

	for _, entry := range Catalogue {
		if entry.Mnemonic != mnemonic {
			continue
		}
		found = true

		trial := cur.Clone()
		operands, err := matchOperands(trial, entry.Operands)
		if err != nil {
			if bestErr == nil {
				bestErr = err
			}
			continue
		}

		ins := NewInstruction(mnemonic)
		entry.Recipe(ins, operands)
		cur.Seek(trial.Pos())
		return ins, nil
	}

	if !found {
		return nil, NewError(UnknownMnemonic, "unknown mnemonic %q", mnemonic)
	}
	return nil, Wrap(NoMatch, bestErr, "no catalogue entry for %q accepted the given operands", mnemonic)
}

// matchOperands runs every slot's classifier in order against trial,
// requiring a literal comma between slots and end-of-line (or end of
// stream) after the last one.
func matchOperands(trial *Cursor, slots []OperandSlot) ([]Operand, error) {
	operands := make([]Operand, 0, len(slots))

	for idx, slot := range slots {
		if idx > 0 {
			tok, ok := trial.Next()
			if !ok || tok.Type != TokenComma {
				return nil, NewError(InvalidOperand, "expected ',' between operands")
			}
		}

		op, err := slot.Classify(trial, slot.Size)
		if err != nil {
			return nil, err
		}
		operands = append(operands, op)
	}

	if tok, ok := trial.Peek(); ok && tok.Type != TokenNewline {
		return nil, NewError(InvalidOperand, "unexpected trailing token %q after operand list", tok.Literal)
	}

	return operands, nil
}
